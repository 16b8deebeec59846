package sdk

// Version is the published SDK version.
// 0.4.0: Add realtime websocket client; session-delete pushes feed the failure bus.
// 0.3.0: Breaking - unauthorized detection is structural only (status/code);
// message-substring matching removed. Add IsUnauthorized/IsNotFound/IsRateLimited.
// 0.2.0: Add SessionGuard auto-retry with jittered backoff; FailureBus isolates
// subscriber panics.
const Version = "0.4.0"
