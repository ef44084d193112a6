// Package rclone wraps the rclone binary behind upload and verify
// primitives. Files and directories need different subcommands (copyto vs
// copy), every invocation carries its own hard timeout, and captured tool
// output is truncated before it is persisted or logged.
package rclone
