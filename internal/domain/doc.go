// Package domain contains the core types of the multi-school model: principals,
// memberships, roles, and the storage collaborator interfaces used during guard
// evaluation. It has no dependencies on transport or storage packages.
package domain
