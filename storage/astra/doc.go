// Package astra implements storage.CollectionStore on DataStax Astra DB using
// its JSON Data API.
//
// Every operation is a single POST of a JSON command to
//
//	{endpoint}/api/json/v1/{keyspace}[/{collection}]
//
// authenticated with the application token in the Token header. Requests go
// through the retrying client from package httpclient.
//
//	store, err := astra.NewStore(astra.Config{
//	    Endpoint: os.Getenv("ASTRA_DB_API_ENDPOINT"),
//	    Keyspace: os.Getenv("ASTRA_DB_NAMESPACE"),
//	    Token:    os.Getenv("ASTRA_DB_APPLICATION_TOKEN"),
//	})
package astra
