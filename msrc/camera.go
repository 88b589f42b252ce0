package msrc

import (
	"os"
)

// Camera describes an on-board camera which can capture a single frame, as an
// opaque encoded image, on request.
type Camera interface {
	Capture() ([]byte, error)
}

// CameraSource is a Source which returns a single captured camera frame as one
// chunk.
type CameraSource struct {
	cam  Camera
	done bool
}

var _ Source = new(CameraSource)

// NewCameraSource returns a CameraSource which will capture a frame from the
// given Camera on its first Read.
func NewCameraSource(cam Camera) *CameraSource {
	return &CameraSource{cam: cam}
}

// Read implements the method for the Source interface.
func (cs *CameraSource) Read() ([]byte, bool, error) {
	if cs.done {
		return nil, true, nil
	}
	cs.done = true

	frame, err := cs.cam.Capture()
	if err != nil {
		return nil, false, unavailable(err, "camera")
	}
	return frame, true, nil
}

// FileCamera is a Camera whose frames are read from a snapshot file, which a
// camera driver overwrites with the latest frame.
type FileCamera struct {
	Path string
}

// NewFileCamera returns a FileCamera reading frames from the given path.
func NewFileCamera(path string) FileCamera {
	return FileCamera{Path: path}
}

// Capture implements the method for the Camera interface.
func (fc FileCamera) Capture() ([]byte, error) {
	return os.ReadFile(fc.Path)
}
