// Package calendar provides a client for creating events through the Google
// Calendar API.
//
// A Client is bound to one user's credentials and is created fresh for each
// import:
//
//	client, err := calendar.NewClient(ctx, oauthCfg, creds)
//	if err != nil {
//	    return err
//	}
//	created, err := client.InsertEvent(ctx, "primary", ev)
package calendar
