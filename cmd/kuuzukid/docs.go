package main

// General API documentation for swaggo. Run `go generate ./...` to generate docs.
//
// @title           kuuzukid API
// @version         1.0
// @description     HTTP API for discovering, launching, and supervising the local kuuzuki server.
//
// @contact.name   kuuzukid maintainers
// @contact.url    https://github.com/your-org/kuuzukid
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
