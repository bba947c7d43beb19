package config

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// FirebaseApp is a global variable for the Firebase app instance
var FirebaseApp *firebase.App

// InitializeFirebase initializes the Firebase app from a service account
// file. Push notifications are disabled when no file is configured.
func InitializeFirebase(credentialsFile string) (*firebase.App, error) {
	if credentialsFile == "" {
		log.Println("Firebase credentials not set, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, err
	}

	FirebaseApp = app
	log.Println("Firebase initialized successfully!")
	return app, nil
}
