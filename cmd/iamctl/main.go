// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command iamctl is the administrative CLI for the Irongate IAM server.
//
// It is a plain HTTP client: every request is signed with the operator's
// Ed25519 key exactly the way the server verifies it, so iamctl is subject
// to the same policies as any other caller.
package main

import "github.com/taibuivan/irongate/cmd/iamctl/cmd"

func main() {
	cmd.Execute()
}
