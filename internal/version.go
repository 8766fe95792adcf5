package internal

// Version is the current version of aitdocs
const Version = "0.1.0"
