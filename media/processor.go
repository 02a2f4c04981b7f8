package media

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	SceneFileExtension = ".jpg"
	SceneJpegQuality   = 95

	CropFileExtension = ".jpg"
)

// Processor renders and stores scene uploads and per-component crops. it
// relies on a Store implementation for saving the results.
type Processor struct {
	store       Store
	cropQuality int
}

func NewProcessor(store Store, cropQuality int) *Processor {
	if cropQuality <= 0 || cropQuality > 100 {
		cropQuality = 90
	}
	return &Processor{store: store, cropQuality: cropQuality}
}

// SaveSceneImage stores the decoded scene image as a JPEG under a generated
// filename and returns the relative path to the saved file.
func (p *Processor) SaveSceneImage(img image.Image) (string, error) {
	return p.encodeAndSave(img, AssetTypeScene, SceneJpegQuality, SceneFileExtension)
}

// RenderCrop extracts the candidate bounds from the scene image, encodes the
// crop as a JPEG and saves it via the Store. returns the relative path to
// the saved crop or an error; callers treat any crop failure as fatal for
// the whole ingestion so reviewers never see components without imagery.
func (p *Processor) RenderCrop(sceneImg image.Image, bounds image.Rectangle) (string, error) {
	if sceneImg == nil {
		return "", fmt.Errorf("nil scene image")
	}
	cropBounds := bounds.Intersect(sceneImg.Bounds())
	if cropBounds.Empty() {
		return "", fmt.Errorf("candidate bounds %v fall outside the scene image %v", bounds, sceneImg.Bounds())
	}

	crop := imaging.Crop(sceneImg, cropBounds)
	return p.encodeAndSave(crop, AssetTypeCrop, p.cropQuality, CropFileExtension)
}

func (p *Processor) encodeAndSave(img image.Image, assetType AssetType, quality int, ext string) (string, error) {
	reader, writer := io.Pipe()

	go func() {
		defer writer.Close()
		err := imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(quality))
		if err != nil {
			log.Printf("processor: Failed to encode %s asset: %v", assetType, err)
			writer.CloseWithError(fmt.Errorf("%s encoding failed: %w", assetType, err))
		}
	}()

	assetUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for %s asset: %w", assetType, err)
	}
	targetFilename := assetUUID.String() + ext

	savedRelPath, err := p.store.Save(assetType, "", targetFilename, reader)
	// reader is drained by io.Copy inside Save, or closed by the encoding goroutine on error

	if err != nil {
		return "", fmt.Errorf("failed to save %s asset via store: %w", assetType, err)
	}

	return savedRelPath, nil
}

// DeleteAssets removes the given relative paths, logging rather than failing
// on individual errors. used to roll back stored files when ingestion aborts.
func (p *Processor) DeleteAssets(relPaths []string) {
	for _, rel := range relPaths {
		if rel == "" {
			continue
		}
		if err := p.store.Delete(rel); err != nil {
			log.Printf("processor: failed to delete asset %s during cleanup: %v", rel, err)
		}
	}
}
