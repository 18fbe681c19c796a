package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	// tokenMetadataKey хранит токены скачивания в формате консоли Firebase.
	tokenMetadataKey = "firebaseStorageDownloadTokens"
	downloadHost     = "https://firebasestorage.googleapis.com"
	signedURLTTL     = 7 * 24 * time.Hour
)

// Bucket реализует хранилище поверх бакета Firebase Storage.
type Bucket struct {
	handle *storage.BucketHandle
}

// NewBucket открывает бакет по умолчанию из конфигурации приложения Firebase.
func NewBucket(ctx context.Context, app *firebase.App) (*Bucket, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}

	handle, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("open default bucket: %w", err)
	}

	return &Bucket{handle: handle}, nil
}

// List перечисляет объекты префикса. Без recursive используется разделитель "/".
func (b *Bucket) List(ctx context.Context, prefix string, recursive bool) (*Listing, error) {
	query := &storage.Query{Prefix: prefix}
	if !recursive {
		query.Delimiter = "/"
	}

	res := &Listing{}
	it := b.handle.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}

		if attrs.Prefix != "" {
			res.Prefixes = append(res.Prefixes, attrs.Prefix)
			continue
		}
		res.Objects = append(res.Objects, fromAttrs(attrs, b.signURL))
	}

	return res, nil
}

// Put загружает объект и возвращает его метаданные.
func (b *Bucket) Put(ctx context.Context, name, contentType string, r io.Reader) (*Object, error) {
	w := b.handle.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{tokenMetadataKey: uuid.NewString()}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish upload %s: %w", name, err)
	}

	obj := fromAttrs(w.Attrs(), b.signURL)
	return &obj, nil
}

// Delete удаляет объект.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	err := b.handle.Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (b *Bucket) signURL(name string) (string, error) {
	return b.handle.SignedURL(name, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(signedURLTTL),
	})
}

// downloadURL строит публичную ссылку Firebase Storage, которая открывается по токену без OAuth.
func downloadURL(bucket, name, token string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		downloadHost, bucket, url.PathEscape(name), url.QueryEscape(token))
}

// objectURL выбирает ссылку на объект: по токену скачивания, затем подписанную,
// и только при неудаче подписи MediaLink.
func objectURL(attrs *storage.ObjectAttrs, sign func(name string) (string, error)) string {
	if tokens := attrs.Metadata[tokenMetadataKey]; tokens != "" {
		token, _, _ := strings.Cut(tokens, ",")
		return downloadURL(attrs.Bucket, attrs.Name, token)
	}
	if sign != nil {
		if u, err := sign(attrs.Name); err == nil {
			return u
		}
	}
	return attrs.MediaLink
}

func fromAttrs(attrs *storage.ObjectAttrs, sign func(name string) (string, error)) Object {
	if attrs == nil {
		return Object{}
	}
	return Object{
		Name:        attrs.Name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		URL:         objectURL(attrs, sign),
		Created:     attrs.Created,
	}
}
