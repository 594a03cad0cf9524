package api

// File is the payload exchanged by the file routes. Content is base64.
type File struct {
	BucketName  string `json:"bucketName"`
	Directory   string `json:"directory"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Key returns the object key a file is stored under.
func (f *File) Key() string {
	return f.Directory + "/" + f.Name
}

// DataResponse wraps a successful payload.
type DataResponse[T any] struct {
	Data T `json:"data"`
}
