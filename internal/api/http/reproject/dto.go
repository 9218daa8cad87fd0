package reproject

// UploadResponse is the success body of POST /reproject_shapefile.
type UploadResponse struct {
	Message      string `json:"message"`
	DownloadLink string `json:"download_link"`
}

// ErrorResponse is the body of every failure response.
type ErrorResponse struct {
	Error string `json:"error"`
}
