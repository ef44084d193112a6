// Command seedvault archives completed qBittorrent downloads to cloud
// storage through rclone. It runs as a long-lived daemon (`seedvault run`)
// or as a one-shot pass (`seedvault tick`), with task inspection and
// configuration subcommands alongside.
package main
