// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package quorum computes whether a meeting has quorum.

Active shares are the shares of IN_PERSON and VIRTUAL attendance. The current
percentage is active/total*100, and quorum is met when it reaches the
meeting's threshold. A meeting with no shares at all never has quorum.

Compute is a pure function over an attendance summary. Calculator reads the
summary and threshold from the store on every call; nothing is cached.
*/
package quorum
