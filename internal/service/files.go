package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/monsterfusion-admin/internal/filestore"
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

const (
	// FileRoot задаёт корень файлового менеджера в бакете.
	FileRoot = "FileStorage/"

	placeholderName     = ".placeholder"
	placeholderType     = "application/octet-stream"
	folderDeleteWorkers = 8
)

func dirPrefix(path string) string {
	if path == "" {
		return FileRoot
	}
	return FileRoot + strings.TrimSuffix(path, "/") + "/"
}

func (s *Service) storage() (ObjectStorage, error) {
	if s.files == nil {
		return nil, ErrFilesDisabled
	}
	return s.files, nil
}

// ListFiles возвращает содержимое папки: сначала папки, затем файлы, по имени. Служебные заглушки скрыты.
func (s *Service) ListFiles(ctx context.Context, path string) ([]model.StoredFile, error) {
	files, err := s.storage()
	if err != nil {
		return nil, err
	}
	if err := validation.FilePath(path); err != nil {
		return nil, err
	}

	listing, err := files.List(ctx, dirPrefix(path), false)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	res := make([]model.StoredFile, 0, len(listing.Prefixes)+len(listing.Objects))
	for _, p := range listing.Prefixes {
		res = append(res, model.StoredFile{
			Name:     filestore.BaseName(p),
			Path:     strings.TrimPrefix(p, FileRoot),
			IsFolder: true,
			Type:     "folder",
			Created:  now,
		})
	}
	for _, o := range listing.Objects {
		name := filestore.BaseName(o.Name)
		if name == placeholderName {
			continue
		}
		contentType := o.ContentType
		if contentType == "" {
			contentType = "unknown"
		}
		res = append(res, model.StoredFile{
			Name:    name,
			Path:    strings.TrimPrefix(o.Name, FileRoot),
			Size:    o.Size,
			URL:     o.URL,
			Type:    contentType,
			Created: o.Created,
		})
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].IsFolder != res[j].IsFolder {
			return res[i].IsFolder
		}
		return res[i].Name < res[j].Name
	})
	return res, nil
}

// UploadFile загружает файл в папку path.
func (s *Service) UploadFile(ctx context.Context, path, name, contentType string, r io.Reader) (*model.StoredFile, error) {
	files, err := s.storage()
	if err != nil {
		return nil, err
	}
	if err := validation.FilePath(path); err != nil {
		return nil, err
	}
	if err := validation.FileName(name); err != nil {
		return nil, err
	}

	obj, err := files.Put(ctx, dirPrefix(path)+name, contentType, r)
	if err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded", zap.String("name", obj.Name), zap.Int64("size", obj.Size))
	return &model.StoredFile{
		Name:    name,
		Path:    strings.TrimPrefix(obj.Name, FileRoot),
		Size:    obj.Size,
		URL:     obj.URL,
		Type:    obj.ContentType,
		Created: obj.Created,
	}, nil
}

// CreateFolder создаёт папку, загружая в неё пустую заглушку.
func (s *Service) CreateFolder(ctx context.Context, path, name string) error {
	files, err := s.storage()
	if err != nil {
		return err
	}
	if err := validation.FilePath(path); err != nil {
		return err
	}
	if err := validation.FolderName(name); err != nil {
		return err
	}

	_, err = files.Put(ctx, dirPrefix(path)+name+"/"+placeholderName, placeholderType, strings.NewReader(""))
	return err
}

// DeleteFile удаляет один файл.
func (s *Service) DeleteFile(ctx context.Context, path string) error {
	files, err := s.storage()
	if err != nil {
		return err
	}
	if path == "" || strings.HasSuffix(path, "/") {
		return fmt.Errorf("%w: file path is required", validation.ErrInvalid)
	}
	if err := validation.FilePath(path); err != nil {
		return err
	}

	return files.Delete(ctx, FileRoot+path)
}

// DeleteFolder рекурсивно удаляет папку и возвращает число удалённых объектов.
// Отсутствующая заглушка папки не считается ошибкой.
func (s *Service) DeleteFolder(ctx context.Context, path string) (int, error) {
	files, err := s.storage()
	if err != nil {
		return 0, err
	}
	if path == "" {
		return 0, fmt.Errorf("%w: refusing to delete the storage root", validation.ErrInvalid)
	}
	if err := validation.FilePath(path); err != nil {
		return 0, err
	}

	prefix := dirPrefix(path)
	listing, err := files.List(ctx, prefix, true)
	if err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		deleted int
		errs    error
	)

	var g errgroup.Group
	g.SetLimit(folderDeleteWorkers)
	for _, o := range listing.Objects {
		g.Go(func() error {
			err := files.Delete(ctx, o.Name)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				deleted++
			case errors.Is(err, filestore.ErrNotExist):
			default:
				errs = multierr.Append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := files.Delete(ctx, prefix+placeholderName); err != nil && !errors.Is(err, filestore.ErrNotExist) {
		errs = multierr.Append(errs, err)
	}

	s.logger.Info("folder deleted", zap.String("path", path), zap.Int("objects", deleted), zap.Error(errs))
	return deleted, errs
}
