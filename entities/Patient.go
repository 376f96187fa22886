package entities

// Patient is the subset of the patient record the desk needs for lookups.
type Patient struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Pinyin string `json:"pinyin,omitempty"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
	Phone  string `json:"phone,omitempty"`

	SearchKeys SearchKeys `json:"-"`
}
