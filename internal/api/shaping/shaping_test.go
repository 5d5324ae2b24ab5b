package shaping

import (
	"reflect"
	"testing"
)

// TestStripInternal_Flat проверяет удаление служебных полей плоского объекта.
func TestStripInternal_Flat(t *testing.T) {
	in := map[string]any{
		"_id":       "abc",
		"__v":       2,
		"deletedAt": nil,
		"name":      "n",
	}

	got := StripInternal(in)

	want := map[string]any{"name": "n"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripInternal() = %v, ожидалось %v", got, want)
	}
}

// TestStripInternal_Nested проверяет рекурсию по вложенным объектам и массивам.
func TestStripInternal_Nested(t *testing.T) {
	in := map[string]any{
		"_id": "1",
		"items": []any{
			map[string]any{"_id": "2", "tag": "a"},
			map[string]any{"__v": 1, "tag": "b"},
		},
		"child": map[string]any{"deletedAt": int64(123), "ok": true},
	}

	got := StripInternal(in).(map[string]any)

	if _, ok := got["_id"]; ok {
		t.Error("_id верхнего уровня не удалён")
	}
	items := got["items"].([]any)
	if _, ok := items[0].(map[string]any)["_id"]; ok {
		t.Error("_id вложенного элемента не удалён")
	}
	child := got["child"].(map[string]any)
	if _, ok := child["deletedAt"]; ok {
		t.Error("deletedAt вложенного объекта не удалён")
	}
	if child["ok"] != true {
		t.Error("обычное вложенное поле потеряно")
	}
}

// TestStripInternal_Nil проверяет терпимость к nil и примитивам.
func TestStripInternal_Nil(t *testing.T) {
	if got := StripInternal(nil); got != nil {
		t.Errorf("StripInternal(nil) = %v, ожидался nil", got)
	}
	if got := StripInternal("строка"); got != "строка" {
		t.Errorf("StripInternal(примитив) = %v", got)
	}
	if got := StripInternal(42); got != 42 {
		t.Errorf("StripInternal(число) = %v", got)
	}
}

// canonicalStub — значение с канонической формой, возвращающей служебное поле.
type canonicalStub struct{}

func (canonicalStub) Canonical() any {
	return map[string]any{"_id": "x", "value": 1}
}

// TestStripInternal_CanonicalLast проверяет, что удаление выполняется
// после каноникализации: поля, привнесённые канонической формой, вычищаются.
func TestStripInternal_CanonicalLast(t *testing.T) {
	got := StripInternal(canonicalStub{}).(map[string]any)
	if _, ok := got["_id"]; ok {
		t.Error("_id из канонической формы не удалён")
	}
	if got["value"] != 1 {
		t.Error("обычное поле канонической формы потеряно")
	}
}

// TestNormalizer_Key проверяет вывод filepath из ключа хранилища
// с кодированием пробелов.
func TestNormalizer_Key(t *testing.T) {
	n := NewNormalizer("", "", true)

	got := n.Normalize(map[string]any{"key": "folder/my file.png"}).(map[string]any)

	if got["filepath"] != "/folder/my%20file.png" {
		t.Errorf("filepath = %v, ожидалось /folder/my%%20file.png", got["filepath"])
	}
	if _, ok := got["key"]; ok {
		t.Error("key не удалён после вывода filepath")
	}
}

// TestNormalizer_Location проверяет разбор location-URL со срезанием бакета.
func TestNormalizer_Location(t *testing.T) {
	n := NewNormalizer("media-bucket", "https://s3.example.com", true)

	got := n.Normalize(map[string]any{
		"location": "https://s3.example.com/media-bucket/img/a b.png",
	}).(map[string]any)

	if got["filepath"] != "/img/a%20b.png" {
		t.Errorf("filepath = %v, ожидалось /img/a%%20b.png", got["filepath"])
	}
	if _, ok := got["location"]; ok {
		t.Error("location не удалён")
	}
}

// TestNormalizer_LocationBareBucketForm проверяет срезание бакета без
// ведущего слэша (встречается в legacy-записях location).
func TestNormalizer_LocationBareBucketForm(t *testing.T) {
	n := NewNormalizer("media-bucket", "https://s3.example.com", true)

	got := n.Normalize(map[string]any{
		"location": "https://s3.example.com/legacymedia-bucket/img/a.png",
	}).(map[string]any)

	if got["filepath"] != "/legacy/img/a.png" {
		t.Errorf("filepath = %v, ожидалось /legacy/img/a.png", got["filepath"])
	}
}

// TestNormalizer_LocationForeignOrigin проверяет, что бакет не срезается
// для чужого origin.
func TestNormalizer_LocationForeignOrigin(t *testing.T) {
	n := NewNormalizer("media-bucket", "https://s3.example.com", true)

	got := n.Normalize(map[string]any{
		"location": "https://other.example.org/media-bucket/img/a.png",
	}).(map[string]any)

	if got["filepath"] != "/media-bucket/img/a.png" {
		t.Errorf("filepath = %v, бакет не должен был срезаться", got["filepath"])
	}
}

// TestNormalizer_LocationDefaultScheme проверяет схему https по умолчанию.
func TestNormalizer_LocationDefaultScheme(t *testing.T) {
	n := NewNormalizer("", "", true)

	got := n.Normalize(map[string]any{
		"location": "cdn.example.com/img/logo.png",
	}).(map[string]any)

	if got["filepath"] != "/img/logo.png" {
		t.Errorf("filepath = %v, ожидалось /img/logo.png", got["filepath"])
	}
}

// TestNormalizer_MediaProperty проверяет обработку явного свойства media:
// одиночное значение и список.
func TestNormalizer_MediaProperty(t *testing.T) {
	n := NewNormalizer("", "", false)

	in := map[string]any{
		"name": "hotel",
		"media": []any{
			map[string]any{"key": "a/b.png"},
			map[string]any{"key": "c/d e.png"},
		},
	}
	got := n.Normalize(in).(map[string]any)
	media := got["media"].([]any)
	if media[0].(map[string]any)["filepath"] != "/a/b.png" {
		t.Errorf("media[0].filepath = %v", media[0].(map[string]any)["filepath"])
	}
	if media[1].(map[string]any)["filepath"] != "/c/d%20e.png" {
		t.Errorf("media[1].filepath = %v", media[1].(map[string]any)["filepath"])
	}

	single := map[string]any{
		"media": map[string]any{"key": "x.png"},
	}
	got = n.Normalize(single).(map[string]any)
	if got["media"].(map[string]any)["filepath"] != "/x.png" {
		t.Errorf("media.filepath = %v", got["media"].(map[string]any)["filepath"])
	}
}

// TestNormalizer_Array проверяет рекурсию по массиву медиа-записей.
func TestNormalizer_Array(t *testing.T) {
	n := NewNormalizer("", "", true)

	in := []any{
		map[string]any{"key": "a.png"},
		nil,
		map[string]any{"key": "b.png"},
	}
	got := n.Normalize(in).([]any)

	if got[0].(map[string]any)["filepath"] != "/a.png" {
		t.Errorf("got[0].filepath = %v", got[0].(map[string]any)["filepath"])
	}
	if got[1] != nil {
		t.Error("nil-элемент должен остаться nil")
	}
	if got[2].(map[string]any)["filepath"] != "/b.png" {
		t.Errorf("got[2].filepath = %v", got[2].(map[string]any)["filepath"])
	}
}

// TestNormalizer_Nil проверяет терпимость к nil.
func TestNormalizer_Nil(t *testing.T) {
	n := NewNormalizer("b", "https://e.com", true)
	if got := n.Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %v, ожидался nil", got)
	}
}
