// Package mockstorage provides a mock for the storage.Store interface
package mockstorage

//go:generate moq -out store.go -pkg mockstorage ../ Store
