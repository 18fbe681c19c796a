// Package filestore предоставляет доступ к объектному хранилищу файлового менеджера.
package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotExist возвращается при обращении к отсутствующему объекту.
var ErrNotExist = errors.New("object does not exist")

// Object содержит метаданные одного объекта бакета.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	URL         string
	Created     time.Time
}

// Listing содержит вложенные префиксы и объекты первого уровня одной «папки».
type Listing struct {
	Prefixes []string
	Objects  []Object
}

// Storage определяет контракт объектного хранилища.
type Storage interface {
	// List возвращает содержимое префикса. При recursive=true префиксы не группируются.
	List(ctx context.Context, prefix string, recursive bool) (*Listing, error)
	Put(ctx context.Context, name, contentType string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, name string) error
}

// BaseName возвращает последний сегмент имени объекта или префикса.
func BaseName(name string) string {
	name = strings.TrimSuffix(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
