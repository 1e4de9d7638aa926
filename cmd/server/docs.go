// Package main Payments API
//
//	@title						Payments API
//	@version					1.0
//	@description				Order payment authorization, capture, reversal and gift certificate ledger service.
//
//	@host						localhost:8080
//	@BasePath					/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Payments
//	@tag.description			Authorization, adjustment, capture and cancellation flows
//
//	@tag.name					Refunds
//	@tag.description			Refunds against captured shipments
//
//	@tag.name					Certificates
//	@tag.description			Gift certificate balance queries
package main
