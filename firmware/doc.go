// Package firmware provides sequential page sources for raw firmware images.
//
// # Image Format
//
// The bootloader accepts a flat binary image. There is no header and no
// checksum: the file is streamed as-is, split into pages of at most
// protocol.PageSize (16 KiB) bytes. Each page becomes one WRITE command.
//
// # Usage
//
// Open a firmware file from disk:
//
//	fw, err := firmware.Open("firmware.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Close()
//
//	fmt.Printf("Size: %d bytes, %d pages\n", fw.Size(), fw.Pages())
//
// Or wrap any io.Reader:
//
//	src := firmware.NewReader(bytes.NewReader(image))
//
// Pages are pulled with NextPage until it returns an empty page:
//
//	for {
//	    page, err := src.NextPage()
//	    if err != nil {
//	        return err
//	    }
//	    if len(page) == 0 {
//	        break
//	    }
//	    // ... send page
//	}
//
// # Error Handling
//
// Open returns *OpenError when the file is missing, unreadable or a
// directory. The underlying *os.PathError is available through errors.As.
package firmware
