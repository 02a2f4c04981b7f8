package segmentation

import (
	"context"
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/camden-git/scenereviewbackend/apperrors"
)

// DNNEngine runs an SSD-style detection network via OpenCV's DNN module and
// maps its output rows to candidate regions.
type DNNEngine struct {
	Net     gocv.Net
	Enabled bool

	// configuration parameters used during detection
	InputSizeW    int
	InputSizeH    int
	ScaleFactor   float64
	MeanVal       gocv.Scalar
	ConfThreshold float32
}

// NewDNNEngine loads the DNN model. A missing or unloadable model yields a
// disabled engine whose Detect fails explicitly instead of silently
// returning nothing.
func NewDNNEngine(configPath, modelPath string) *DNNEngine {
	if configPath == "" || modelPath == "" {
		log.Println("segmentation(dnn): config or model path is empty, disabling DNN engine")
		return &DNNEngine{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		log.Printf("segmentation(dnn): ERROR loading network model: config=%s, model=%s", configPath, modelPath)
		return &DNNEngine{Enabled: false}
	}
	log.Printf("segmentation(dnn): successfully loaded segmentation model")

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)

	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("segmentation(dnn): Set backend/target to CUDA")
	} else {
		if cudaBackendErr != nil {
			log.Printf("segmentation(dnn): CUDA Backend not available or failed: %v. Using default backend.", cudaBackendErr)
		}
		if cudaTargetErr != nil {
			log.Printf("segmentation(dnn): CUDA Target not available or failed: %v. Using default target.", cudaTargetErr)
		}

		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("segmentation(dnn): Set backend/target to CPU (Default)")
	}

	return &DNNEngine{
		Net:           net,
		Enabled:       true,
		InputSizeW:    300,
		InputSizeH:    300,
		ScaleFactor:   1.0,
		MeanVal:       gocv.NewScalar(104.0, 177.0, 123.0, 0),
		ConfThreshold: 0.2,
	}
}

func (e *DNNEngine) Close() {
	if e != nil && e.Enabled {
		e.Net.Close()
		log.Println("segmentation(dnn): closed network")
		e.Enabled = false
	}
}

// Detect runs the network on img and returns candidate regions with
// confidences scaled to 0-100. The context is checked before and after the
// forward pass; the pass itself is not interruptible.
func (e *DNNEngine) Detect(ctx context.Context, img image.Image) ([]Candidate, error) {
	if e == nil || !e.Enabled {
		return nil, apperrors.Enginef("DNN engine not loaded or disabled")
	}
	if img == nil {
		return nil, apperrors.Enginef("nil input image")
	}
	if err := ctx.Err(); err != nil {
		return nil, &apperrors.EngineError{Err: err, Retryable: true}
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, apperrors.Enginef("failed to convert image to Mat: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, apperrors.Enginef("input image decoded to an empty matrix")
	}

	imgHeight := float32(mat.Rows())
	imgWidth := float32(mat.Cols())

	blob := gocv.BlobFromImage(mat, e.ScaleFactor, image.Pt(e.InputSizeW, e.InputSizeH), e.MeanVal, false, false)
	defer blob.Close()

	e.Net.SetInput(blob, "")
	detectionsMat := e.Net.Forward("")
	defer detectionsMat.Close()

	if err := ctx.Err(); err != nil {
		return nil, &apperrors.EngineError{Err: err, Retryable: true}
	}

	candidates := []Candidate{}

	sizes := detectionsMat.Size()
	if len(sizes) != 4 || sizes[0] != 1 || sizes[1] != 1 {
		log.Printf("segmentation(dnn): Warning - Unexpected output matrix dimensions: %v", sizes)

		if len(sizes) < 3 {
			return nil, apperrors.Enginef("output matrix dimensions too small to parse: %v", sizes)
		}
	}

	numDetections := sizes[2]
	if numDetections == 0 {
		return candidates, nil
	}

	// reshape the Mat to 2D: [N, 7] for easier access with GetFloatAt(row, col)
	detections2D := detectionsMat.Reshape(1, numDetections*sizes[3])
	defer detections2D.Close()
	detectionsData := detections2D.Reshape(1, numDetections)
	defer detectionsData.Close()

	for i := 0; i < numDetections; i++ {
		confidence := detectionsData.GetFloatAt(i, 2)

		if confidence > e.ConfThreshold {
			xMin := detectionsData.GetFloatAt(i, 3) * imgWidth
			yMin := detectionsData.GetFloatAt(i, 4) * imgHeight
			xMax := detectionsData.GetFloatAt(i, 5) * imgWidth
			yMax := detectionsData.GetFloatAt(i, 6) * imgHeight

			xMin = max(0, xMin)
			yMin = max(0, yMin)
			xMax = min(imgWidth, xMax)
			yMax = min(imgHeight, yMax)

			if xMax > xMin && yMax > yMin {
				score := float64(confidence) * 100
				candidates = append(candidates, Candidate{
					Bounds:     image.Rect(int(xMin), int(yMin), int(xMax), int(yMax)),
					Confidence: &score,
				})
			}
		}
	}

	log.Printf("segmentation(dnn): found %d candidate region(s)", len(candidates))
	return candidates, nil
}

var _ Engine = (*DNNEngine)(nil)
