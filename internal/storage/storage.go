// Пакет storage — загрузка медиафайлов в объектное хранилище.
package storage

import (
	"context"
	"io"
)

// Uploader сохраняет содержимое файла под заданным ключом и возвращает
// абсолютный адрес объекта в хранилище.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader, size int64) (location string, err error)
}
