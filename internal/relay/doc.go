// Package relay implements the per-remote-peer ICE/DTLS/SCTP session: it
// drives offer/answer negotiation and ICE restart from signaling messages,
// runs the offerer-only keepalive liveness check, and bridges a local UDP
// socket to the peer's data channel.
//
// A Relay is single-threaded cooperative: every callback the underlying ICE
// stack or the UDP reader delivers is posted onto the executor.Executor
// supplied at construction before it touches any Relay state, so no locking
// is needed beyond that executor's own serialization.
package relay
