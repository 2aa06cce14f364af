// Package handler contains the HTTP handlers for the DataMorph API.
package handler
