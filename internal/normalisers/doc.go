// Package normalisers holds the Normaliser implementations. The crawler
// only keeps HTML responses, so html is the one normaliser wired today.
package normalisers
