package wave

// defaultBitDepth is assumed for PCM buffers that do not report their depth.
const defaultBitDepth = 16
