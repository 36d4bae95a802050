// Package kv provides the transactional key/value backends the stores run on.
//
// Two backends implement domain.DB:
//   - BoltDB (OpenBolt): a single bbolt file, one bucket, serialisable writers.
//   - Datastore (NewDatastore, OpenLevelDB): any go-datastore TxnDatastore;
//     OpenLevelDB wires go-ds-leveldb, in memory when the path is empty.
//
// Both hand out domain.ReadTx / domain.WriteTx handles. Update commits when the
// callback returns nil and discards every write otherwise; callers never see a
// partially applied transaction. Handles must not escape the callback.
package kv
