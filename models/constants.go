package models

import "time"

// DefaultChain is signed for when a gated policy does not name any chains.
const DefaultChain = "ethereum"

const DefaultPlaybackInfoRateLimit = 10
const DefaultPlaybackInfoQueueDepth = 100

const LitConnectTimeout = 30 * time.Second
const LitExchangeTimeout = time.Minute

const MetricsCallerName = "video-nft-sdk"
