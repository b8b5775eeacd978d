// Package azure stores listing photos in an Azure Blob Storage container.
package azure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/google/uuid"

	"github.com/agrilink/agrilink/internal/photostore"
)

type PhotoStore struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New validates the connection string and builds the client. No request is
// made until EnsureContainer or the first Save.
func New(connectionString, container string, logger *slog.Logger) (*PhotoStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoStore{
		client:    client,
		container: container,
		logger:    logger.With("system", "photostore"),
	}, nil
}

// EnsureContainer creates the container if it does not exist yet.
func (s *PhotoStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", s.container, err)
	}
	s.logger.Info("photo container ready", "container", s.container)
	return nil
}

func (s *PhotoStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), photostore.MIMEToExt(mimeType))
	if err := photostore.ValidateKey(key); err != nil {
		return "", err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &mimeType,
		},
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, r, opts); err != nil {
		return "", fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return key, nil
}

func (s *PhotoStore) Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	if err := photostore.ValidateKey(storageKey); err != nil {
		return nil, "", err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, storageKey, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to download blob %s: %w", storageKey, err)
	}

	mimeType := ""
	if resp.ContentType != nil {
		mimeType = *resp.ContentType
	}
	if mimeType == "" {
		mimeType = photostore.ExtToMIME(path.Ext(storageKey))
	}
	return resp.Body, mimeType, nil
}

func (s *PhotoStore) Delete(ctx context.Context, storageKey string) error {
	if err := photostore.ValidateKey(storageKey); err != nil {
		return err
	}

	if _, err := s.client.DeleteBlob(ctx, s.container, storageKey, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", storageKey, err)
	}
	return nil
}
