package types

// ItemType classifies a collection item
type ItemType string

const (
	ItemTypeAudio ItemType = "audio"
	ItemTypeVideo ItemType = "video"
	ItemTypeImage ItemType = "image"
	ItemTypeOther ItemType = "other"
	ItemTypeLabel ItemType = "label"
)

// HasTags reports whether items of this type carry extracted tag metadata.
func (t ItemType) HasTags() bool {
	return t == ItemTypeAudio || t == ItemTypeVideo
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeAudio, ItemTypeVideo, ItemTypeImage, ItemTypeOther, ItemTypeLabel:
		return true
	}
	return false
}

// CollectionRecord is the persisted manifest of a collection.
// Items order is the playback order.
type CollectionRecord struct {
	Title string           `json:"title"`
	Items []CollectionItem `json:"items"`
}

// CollectionItem is one entry of a collection
type CollectionItem struct {
	Title string   `json:"title"`
	Type  ItemType `json:"type"`
	File  string   `json:"file,omitempty"` // file name inside the collection directory
	Meta  *Tags    `json:"meta,omitempty"` // audio and video only
}

// Tags holds metadata extracted from an audio or video file
type Tags struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArtist string `json:"albumArtist,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	TrackTotal  int    `json:"trackTotal,omitempty"`
	Format      string `json:"format,omitempty"`   // tag format, e.g. "ID3v2.4"
	FileType    string `json:"fileType,omitempty"` // e.g. "MP3", "OGG"
}
