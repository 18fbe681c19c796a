package store

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseStore реализует хранилище поверх Firebase Realtime Database.
type FirebaseStore struct {
	name   string
	client *db.Client
}

// NewFirebaseApp инициализирует приложение Firebase для одного проекта.
// Пустой credentialsFile означает Application Default Credentials.
func NewFirebaseApp(ctx context.Context, credentialsFile, storageBucket string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: storageBucket}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

// NewFirebaseStore создаёт клиент базы по её URL.
func NewFirebaseStore(ctx context.Context, name string, app *firebase.App, databaseURL string) (*FirebaseStore, error) {
	client, err := app.DatabaseWithURL(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init database client %s: %w", name, err)
	}
	return &FirebaseStore{name: name, client: client}, nil
}

// Name возвращает имя хранилища.
func (f *FirebaseStore) Name() string {
	return f.name
}

// Get читает значение по пути; null в ответе означает отсутствие ключа.
func (f *FirebaseStore) Get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	var raw json.RawMessage
	if err := f.client.NewRef(path).Get(ctx, &raw); err != nil {
		return nil, false, fmt.Errorf("get %s: %w", path, err)
	}
	if isNull(raw) {
		return nil, false, nil
	}
	return raw, true, nil
}

// Set перезаписывает значение по пути.
func (f *FirebaseStore) Set(ctx context.Context, path string, value any) error {
	if err := f.client.NewRef(path).Set(ctx, value); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Remove удаляет значение по пути. Realtime Database не считает удаление отсутствующего ключа ошибкой.
func (f *FirebaseStore) Remove(ctx context.Context, path string) error {
	if err := f.client.NewRef(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
