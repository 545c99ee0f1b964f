// Package ui holds the end-to-end scenarios against a running application.
// They are compiled only with -tags e2e; cmd/talentcheck-runner supplies the
// flags and configuration. Run directly, go test executes inside this
// directory, so pass an absolute -config path:
//
//	go test -tags e2e ./test/ui -args -config $PWD/talentcheck.toml -video=off
package ui
