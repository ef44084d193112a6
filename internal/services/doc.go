// Package services provides the shared error taxonomy and context carriers
// used by the driver and the external collaborators (qBittorrent, rclone).
package services
