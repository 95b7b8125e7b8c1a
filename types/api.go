package types

// ImportedItem is the result of staging one source file into a collection.
// The caller fills the item title, usually from Filename.
type ImportedItem struct {
	Type     ItemType `json:"type"`
	File     string   `json:"file"`     // staged file name inside the collection directory
	Path     string   `json:"path"`     // original source path
	Filename string   `json:"filename"` // source base name with extension
	Meta     *Tags    `json:"meta,omitempty"`
}

// Item converts the imported file into a collection item with the given title.
func (i ImportedItem) Item(title string) CollectionItem {
	return CollectionItem{
		Title: title,
		Type:  i.Type,
		File:  i.File,
		Meta:  i.Meta,
	}
}

// CollectionSummary is one row of the collection listing
type CollectionSummary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Items int    `json:"items"`
}

// Display describes an output display by its bounds in the virtual desktop
type Display struct {
	X      int `json:"x" mapstructure:"x"`
	Y      int `json:"y" mapstructure:"y"`
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}
