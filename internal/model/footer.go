package model

// SharePlatform identifies an outbound share target
type SharePlatform string

const (
	ShareTwitter  SharePlatform = "twitter"
	ShareFacebook SharePlatform = "facebook"
	ShareLinkedIn SharePlatform = "linkedin"
)

// ShareLink is a single outbound share link in the footer
type ShareLink struct {
	Platform SharePlatform `json:"platform"`
	Label    string        `json:"label"`
	Href     string        `json:"href"`
}

// FooterStatus describes what happened to the footer on a page
type FooterStatus string

const (
	FooterInjected     FooterStatus = "injected" // Appended under a mount point
	FooterPresent      FooterStatus = "present"  // A marked footer already existed
	FooterNoMountPoint FooterStatus = "no_mount" // No candidate locator matched
	FooterDisabled     FooterStatus = "disabled" // Footer turned off in config
)

// FooterResult records the footer outcome for a page
type FooterResult struct {
	Status     FooterStatus `json:"status"`
	MountPoint string       `json:"mount_point,omitempty"` // Selector that located the mount point
	ShareLinks []ShareLink  `json:"share_links,omitempty"`
}
