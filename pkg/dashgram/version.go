package dashgram

// Version is the SDK version reported in the default origin and User-Agent.
const Version = "0.3.0"
