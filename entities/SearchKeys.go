package entities

// SearchKeys holds the normalized forms a record is matched against.
// Each slice lists one value per searchable field (name, specification...).
type SearchKeys struct {
	Folded   []string // width and case folded text
	Pinyin   []string // full pinyin without separators
	Initials []string // pinyin first letters
}
