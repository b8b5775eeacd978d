package classify

import "strings"

const notSpecified = "Not specified"

const promptPreamble = `You are an expert agricultural waste classification assistant.
Analyze the provided waste information and return complete data in the specified JSON format.

For image analysis, examine the visual characteristics.
For text analysis, use the provided description.
`

// OutputSchema is the literal response schema every prompt carries.
const OutputSchema = `Required Output Format:
{
  "cropType": "string (Rice/Wheat/Sugarcane)",
  "wasteType": "string (stubble/straw/stalk/bagasse/bran)",
  "wasteDescription": "string (detailed description)",
  "quantity": "number",
  "quantityUnit": "string (kg/ton)",
  "moistureLevel": "string (Low/Medium/High)",
  "ageOfWaste": "string (Fresh/1-2 weeks/2-4 weeks/1-2 months/2+ months)",
  "qualityAssessment": {
    "condition": "string",
    "contamination": "string (Present/Not present)"
  },
  "suggestedUses": ["array", "of", "suggestions"],
  "estimatedValue": "number (INR per ton)",
  "confidence": "number (0-1)",
  "notes": "string (additional observations)"
}
`

const imageBody = "Analyze this agricultural waste image:"

const promptClosing = "Provide complete output in exact specified JSON format."

// BuildPrompt renders the provider prompt for a normalised request. It is a
// pure function: identical requests yield byte-identical prompts.
func BuildPrompt(r Request) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n")
	b.WriteString(OutputSchema)
	b.WriteString("\n")

	if r.AnalysisType == AnalysisImage {
		b.WriteString(imageBody)
	} else {
		b.WriteString("Analyze this description:\n")
		writeField(&b, "Crop Type", string(r.CropType))
		writeField(&b, "Waste Description", r.Description)
		writeField(&b, "Quantity", string(r.Quantity))
		writeField(&b, "Moisture Level", string(r.MoistureLevel))
		b.WriteString("Age of Waste: ")
		b.WriteString(orNotSpecified(string(r.Age)))
	}

	b.WriteString("\n\n")
	b.WriteString(promptClosing)
	b.WriteString("\n")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(orNotSpecified(value))
	b.WriteString("\n")
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
