package entities

// Location describes where a distribution archive lives.
//
// The set of implementations is closed: RemoteLocation and LocalLocation.
type Location interface {
	// String returns the URL or path for display
	String() string

	isLocation()
}

// RemoteLocation is an archive fetched over the network and verified against
// its SHA256 digest after download
type RemoteLocation struct {
	URL    string
	SHA256 string // lowercase hex, 64 characters
}

func (l RemoteLocation) String() string { return l.URL }

func (RemoteLocation) isLocation() {}

// LocalLocation is a distribution already materialized on disk
type LocalLocation struct {
	Path string
}

func (l LocalLocation) String() string { return l.Path }

func (LocalLocation) isLocation() {}
