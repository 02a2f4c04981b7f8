package media

import (
	"bytes"
	"image"

	"github.com/rwcarlsen/goexif/exif"
)

// helper to safely get and convert a rational tag (like Aperture, FocalLength)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil // Tag not found
	}
	// rational numbers are often stored as num/den
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// helper to safely get a string tag (like Make, Model)
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil || val == "" {
		return nil
	}
	return &val
}

// ExtractSceneMetadata builds the schema-less metadata map persisted with a
// scene: image dimensions plus whatever EXIF information the upload carries.
// EXIF failures are not errors; most renders and screenshots carry none.
func ExtractSceneMetadata(raw []byte, img image.Image) map[string]interface{} {
	meta := map[string]interface{}{}

	if img != nil {
		bounds := img.Bounds()
		meta["width"] = bounds.Dx()
		meta["height"] = bounds.Dy()
	}

	exifData, err := exif.Decode(bytes.NewReader(raw))
	if err != nil || exifData == nil {
		return meta
	}

	if v := getString(exifData, exif.Make); v != nil {
		meta["camera_make"] = *v
	}
	if v := getString(exifData, exif.Model); v != nil {
		meta["camera_model"] = *v
	}
	if v := getRational(exifData, exif.FocalLength); v != nil {
		meta["focal_length"] = *v
	}
	if v := getRational(exifData, exif.FNumber); v != nil {
		meta["aperture"] = *v
	}
	if t, err := exifData.DateTime(); err == nil {
		meta["taken_at"] = t.Unix()
	}

	return meta
}
