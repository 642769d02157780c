// Package localstorage implements store.Store on the browser's
// window.localStorage for GOOS=js GOARCH=wasm builds. On every other target
// the package is empty.
package localstorage
