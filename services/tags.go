package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"media54/types"

	"github.com/dhowden/tag"
)

// TagExtractor reads tag metadata from an audio or video file
type TagExtractor interface {
	// Extract returns the tags of the file at path. An error means the file
	// could not be read at all; a file without a tag block yields tags
	// derived from its name.
	Extract(path string) (*types.Tags, error)
}

// tagExtractor implements TagExtractor with dhowden/tag
type tagExtractor struct{}

// NewTagExtractor creates a tag extractor
func NewTagExtractor() TagExtractor {
	return &tagExtractor{}
}

var trackPrefix = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// Extract reads ID3, MP4, OGG and FLAC tags, falling back to the file name
func (te *tagExtractor) Extract(path string) (*types.Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		if !errors.Is(err, tag.ErrNoTagsFound) {
			log.Printf("Warning: Could not parse tags from %s: %v", path, err)
		}
		return tagsFromPath(path), nil
	}

	tags := &types.Tags{
		Title:       meta.Title(),
		Artist:      meta.Artist(),
		Album:       meta.Album(),
		AlbumArtist: meta.AlbumArtist(),
		Genre:       meta.Genre(),
		Year:        meta.Year(),
		Format:      string(meta.Format()),
		FileType:    string(meta.FileType()),
	}
	tags.TrackNumber, tags.TrackTotal = meta.Track()

	if tags.Title == "" {
		tags.Title = tagsFromPath(path).Title
	}
	return tags, nil
}

// tagsFromPath derives a title and track number from a file name such as
// "03 - Intro.mp3"
func tagsFromPath(path string) *types.Tags {
	tags := &types.Tags{}

	filename := filepath.Base(path)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))

	if matches := trackPrefix.FindStringSubmatch(title); len(matches) > 2 {
		title = matches[2]
		if trackNum, err := strconv.Atoi(matches[1]); err == nil {
			tags.TrackNumber = trackNum
		}
	}

	tags.Title = title
	return tags
}
