package spectral

// minLength is the shortest supported transform (one bin pair).
const minLength = 2
