package version

// Version is the current release of the medportal server
const Version = "0.1.0"
