// Пакет shaping — пост-обработка исходящих ответов API.
//
// Два независимых рекурсивных преобразования:
//   - StripInternal — удаление служебных полей хранилища (_id, __v, deletedAt);
//   - Normalizer — переписывание ключей/URL объектного хранилища в
//     нормализованный относительный путь filepath.
//
// Оба преобразования применяются к декодированным JSON-значениям
// (map / slice / примитивы), терпимы к nil на любом уровне и никогда
// не возвращают ошибку. Ответы с ошибками не преобразуются.
package shaping

import (
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Canonicaler — доступ к канонической форме значения: обёртки хранилища
// (структуры с bson-тегами) разворачиваются в плоские map до обработки.
type Canonicaler interface {
	// Canonical возвращает значение в канонической форме (map/slice/примитив).
	Canonical() any
}

// canonical разворачивает значение в каноническую форму.
// bson-типы приводятся к нативным map/slice.
func canonical(v any) any {
	if c, ok := v.(Canonicaler); ok {
		return c.Canonical()
	}
	switch t := v.(type) {
	case bson.M:
		return map[string]any(t)
	case bson.A:
		return []any(t)
	case bson.D:
		return map[string]any(t.Map())
	}
	return v
}

// StripInternal удаляет служебные поля хранилища из значения рекурсивно:
// первичный идентификатор (_id), счётчик версий (__v) и отметку
// soft-delete (deletedAt). Каноникализация выполняется до удаления,
// поэтому поля, привнесённые самой канонической формой, тоже вычищаются.
func StripInternal(v any) any {
	v = canonical(v)
	switch t := v.(type) {
	case []any:
		for i := range t {
			t[i] = StripInternal(t[i])
		}
		return t
	case map[string]any:
		delete(t, "_id")
		delete(t, "__v")
		delete(t, "deletedAt")
		for k := range t {
			t[k] = StripInternal(t[k])
		}
		return t
	}
	return v
}

// Normalizer переписывает расположение медиа-объектов в публичный
// относительный путь filepath.
type Normalizer struct {
	bucket        string
	replaceOrigin string
	mediaArray    bool
}

// NewNormalizer создаёт Normalizer.
// bucket — имя бакета объектного хранилища; endpoint — его URL (из origin
// эндпоинта вычисляется replace-origin); mediaArray — считать каждый
// объект ответа медиа-записью (для ответов media-эндпоинтов).
func NewNormalizer(bucket, endpoint string, mediaArray bool) *Normalizer {
	origin := ""
	if endpoint != "" {
		if u, err := url.Parse(withScheme(endpoint)); err == nil && u.Host != "" {
			origin = u.Scheme + "://" + u.Host
		}
	}
	return &Normalizer{
		bucket:        bucket,
		replaceOrigin: origin,
		mediaArray:    mediaArray,
	}
}

// Normalize применяет преобразование рекурсивно. Терпимо к nil.
func (n *Normalizer) Normalize(v any) any {
	v = canonical(v)
	switch t := v.(type) {
	case []any:
		for i := range t {
			t[i] = n.Normalize(t[i])
		}
		return t
	case map[string]any:
		for _, m := range n.collectMedia(t) {
			n.rewrite(m)
		}
		for k := range t {
			t[k] = n.Normalize(t[k])
		}
		return t
	}
	return v
}

// collectMedia собирает медиа-подобные значения объекта: явное свойство
// media (одиночное значение нормализуется к списку) либо сам объект,
// когда включён режим mediaArray.
func (n *Normalizer) collectMedia(obj map[string]any) []map[string]any {
	if raw, ok := obj["media"]; ok && raw != nil {
		switch media := canonical(raw).(type) {
		case []any:
			var list []map[string]any
			for _, item := range media {
				if m, ok := canonical(item).(map[string]any); ok {
					list = append(list, m)
				}
			}
			return list
		case map[string]any:
			return []map[string]any{media}
		}
		return nil
	}
	if n.mediaArray {
		return []map[string]any{obj}
	}
	return nil
}

// rewrite выводит filepath из key или location и удаляет исходные поля.
func (n *Normalizer) rewrite(m map[string]any) {
	key, _ := m["key"].(string)
	location, _ := m["location"].(string)

	switch {
	case key != "":
		// Ключ хранилища трактуется как путь
		pathname := key
		if !strings.HasPrefix(pathname, "/") {
			pathname = "/" + pathname
		}
		m["filepath"] = encodePathSpaces(pathname)

	case location != "":
		// URL хранилища: схема по умолчанию https; имя бакета срезается,
		// если origin совпадает с настроенным replace-origin
		loc := location
		if !strings.HasPrefix(loc, "http") {
			loc = "https://" + loc
		}
		if u, err := url.Parse(loc); err == nil {
			pathname := u.Path
			if n.bucket != "" && n.replaceOrigin != "" && originOf(u) == n.replaceOrigin {
				// Сначала форма "/bucket/", затем остаточная "bucket/"
				// (встречается в legacy-записях location).
				pathname = strings.Replace(pathname, "/"+n.bucket+"/", "/", 1)
				pathname = strings.Replace(pathname, n.bucket+"/", "/", 1)
			}
			m["filepath"] = encodePathSpaces(pathname)
		}
	}

	delete(m, "key")
	delete(m, "location")
}

// encodePathSpaces кодирует сегменты пути, содержащие пробелы.
func encodePathSpaces(pathname string) string {
	segments := strings.Split(pathname, "/")
	for i, s := range segments {
		if strings.Contains(s, " ") {
			segments[i] = url.PathEscape(s)
		}
	}
	return strings.Join(segments, "/")
}

// originOf возвращает origin URL (scheme://host).
func originOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// withScheme добавляет https://, если схема не указана.
func withScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
