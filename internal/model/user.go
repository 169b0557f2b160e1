package model

import "time"

// Role names stored in users.role.  A user's role is fixed at
// registration and never changes afterwards.
const (
    RoleFarmer = "farmer"
    RoleDealer = "dealer"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers define separate response types with JSON tags;
// these structs are used internally by the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown to other users.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – either "farmer" or "dealer".
//  Address      – postal/contact address.
//  Phone        – contact phone number.
//  ProfilePic   – optional URL or data reference to an avatar.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    Address      string    // users.address
    Phone        string    // users.phone
    ProfilePic   *string   // users.profile_pic (nullable)
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// ValidRole reports whether the given role name is one of the two
// roles the marketplace knows about.
func ValidRole(role string) bool {
    return role == RoleFarmer || role == RoleDealer
}
