// Package services contains server-side business logic: owner activity,
// the trustee lifecycle, item release and access checks, beneficiary
// conflict checks and the release sweep.
//
// Services read through a dbx.DBTX and run multi-step writes through a
// dbx.Transactor, taking row locks where concurrent writers could race.
package services
