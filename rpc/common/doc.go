// Package common provides the data structures shared by every part of the
// messaging core: node addresses, message type tags, error codes, configuration
// structures and the logging setup.
//
// Key Components:
//
//   - Address: IPv4 host plus port. It is a comparable value type so it can key
//     the per-destination channel cache, and it has a fixed 8 byte wire form
//     (PutAddress / ReadAddress) used for the sender field of a request frame.
//
//   - Message, Request and MessageType: the contract between payload structs and
//     the core. The core only reads the 8 bit type tag; everything else is
//     opaque payload handled by a serializer.
//
//   - ErrorCode, CodeError, ResultError: the error codes carried in error frames
//     and the two error shapes a requester can observe. CodeError means the peer
//     answered with an error code, ResultError means the answer arrived but
//     could not be processed locally. A future that times out fails with
//     ErrTimeout instead.
//
//   - ContextConfig, ServerConfig, ClientConfig: configuration structs with
//     pretty printers for startup logging.
//
//   - Logger: custom formatting for dragonboat's logger facade, which all
//     packages use via logger.GetLogger(name).
package common
