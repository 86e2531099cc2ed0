package recognition

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// Container identifies how an audio file must be fed to the recognizer.
type Container int

const (
	// ContainerAny is any compressed container the service can decode.
	ContainerAny Container = iota
	// ContainerWAV is RIFF/WAVE PCM, read directly from the file.
	ContainerWAV
	// ContainerMP3 is MPEG-1/2 layer 3.
	ContainerMP3
	// ContainerFLAC is FLAC.
	ContainerFLAC
	// ContainerOggOpus is Opus in an Ogg container.
	ContainerOggOpus
)

// String returns a short name for logs.
func (c Container) String() string {
	switch c {
	case ContainerWAV:
		return "wav"
	case ContainerMP3:
		return "mp3"
	case ContainerFLAC:
		return "flac"
	case ContainerOggOpus:
		return "ogg-opus"
	default:
		return "any"
	}
}

// DetectContainer sniffs the file content at path.
func DetectContainer(path string) (Container, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ContainerAny, fmt.Errorf("failed to detect audio type of '%s': %w", path, err)
	}

	switch {
	case mtype.Is("audio/wav"):
		return ContainerWAV, nil
	case mtype.Is("audio/mpeg"):
		return ContainerMP3, nil
	case mtype.Is("audio/flac"):
		return ContainerFLAC, nil
	case mtype.Is("audio/ogg"), mtype.Is("application/ogg"):
		return ContainerOggOpus, nil
	default:
		return ContainerAny, nil
	}
}
