// Package httpclient provides a client for the upload server, which
// streams files from an fs.FS as a single multipart/form-data request.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api")
//	if err != nil {
//	   panic(err)
//	}
//
// Then upload the files under a directory:
//
//	form, err := client.Upload(ctx, os.DirFS("photos"), httpclient.WithField("photos"))
package httpclient
