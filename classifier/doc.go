// Package classifier triages user messages before any model call.
//
// Classification is a pure function of the message text: it detects
// explicit save requests and generic memory-recall questions in Turkish
// and English, and filters out greetings and other low-value messages
// so the analyzer never spends a completion on them.
package classifier
