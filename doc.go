// Package auth provides user registration, email verification and password
// authentication on top of Bun repositories.
//
// Registration:
//   - RegisterUserHandler validates the input, then runs a single UnitOfWork
//     that checks username and email availability, stores the user and attaches
//     the default role and permissions. Nothing is persisted unless every step
//     succeeds.
//   - The verification email is sent after commit. A delivery failure is
//     reported as EmailSendingError while the account stays stored.
//
// Roles and permissions:
//   - RoleService and PermissionService resolve a RoleRef or PermissionRef by
//     code, update the in-memory set on the user and persist it through the
//     transaction handle they are given. Adding an assigned code is a no-op.
//   - Seeder creates the predefined codes on startup and can be run again.
//
// Errors:
//   - Every failure a caller can act on is a *goerrors.Error whose TextCode is
//     one of the TextCode constants. Use KindOf to switch on it and
//     StatusForKind to map it to HTTP.
package auth
