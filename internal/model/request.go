package model

// ProcessRequest is the decoded body of POST /pipeline/v2/process.
type ProcessRequest struct {
	TemplateCode   string `json:"templateCode" validate:"required"`
	VersionSemver  string `json:"versionSemver" validate:"required"`
	DownloadURL    string `json:"downloadUrl" validate:"required,url"`
	ChecksumSha256 string `json:"checksumSha256" validate:"required,len=64,hexadecimal,lowercase"`
	RawPath        string `json:"rawPath" validate:"required"`
}
