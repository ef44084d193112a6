// Package qbittorrent is a minimal client for the qBittorrent WebUI API v2,
// covering what the archive driver needs: session login, completed-torrent
// listing, and torrent deletion. The SID session cookie is owned by the
// client and re-acquired transparently when the WebUI rejects a request.
package qbittorrent
