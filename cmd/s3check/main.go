package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-s3/pkg/simples3"
)

// EnvConfig supplies defaults from the environment; flags override.
type EnvConfig struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	UseSSL          bool   `env:"AWS_S3_USE_SSL" env-default:"true"`
}

func main() {
	var envCfg EnvConfig
	if err := cleanenv.ReadEnv(&envCfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	region := flag.String("region", envCfg.Region, "AWS region")
	bucket := flag.String("bucket", envCfg.Bucket, "S3 bucket name")
	accessKey := flag.String("access-key", envCfg.AccessKeyID, "AWS access key ID")
	secretKey := flag.String("secret-key", envCfg.SecretAccessKey, "AWS secret access key")
	endpoint := flag.String("endpoint", envCfg.Endpoint, "Custom S3 endpoint (for MinIO, etc.)")
	useSSL := flag.Bool("use-ssl", envCfg.UseSSL, "Use SSL for connections")
	presignTTL := flag.Int("presign-ttl", 3600, "Duration in seconds for presigned URLs")

	command := flag.String("command", "help", "Command to execute: upload, download, delete, stat, list, presign, help")
	objectKey := flag.String("key", "", "Object key for operations")
	filePath := flag.String("file", "", "File path for upload/download")
	prefix := flag.String("prefix", "", "Key prefix for list")
	method := flag.String("method", "GET", "HTTP method for presign")

	// MinIO shortcut
	useMinio := flag.Bool("use-minio", false, "Use MinIO defaults (endpoint, credentials)")
	minioEndpoint := flag.String("minio-endpoint", "http://localhost:9000", "MinIO server endpoint")

	flag.Parse()

	if *useMinio {
		*endpoint = *minioEndpoint
		*useSSL = false
		if *accessKey == "" {
			*accessKey = "minioadmin"
		}
		if *secretKey == "" {
			*secretKey = "minioadmin"
		}
	}

	if *command == "help" || *command == "" {
		printHelp()
		return
	}

	if *bucket == "" {
		log.Fatal("Bucket name is required")
	}

	client, err := simples3.New(simples3.Config{
		AccessKeyID:     *accessKey,
		SecretAccessKey: *secretKey,
		Bucket:          *bucket,
		Region:          simples3.Region(*region),
		Endpoint:        *endpoint,
		UseSSL:          *useSSL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}

	ctx := context.Background()

	switch strings.ToLower(*command) {
	case "upload":
		if *filePath == "" {
			log.Fatal("File path is required for upload")
		}
		key := *objectKey
		if key == "" {
			key = uuid.New().String()
			fmt.Printf("No key given, generated %s\n", key)
		}

		payload, err := simples3.NewFilePayload(*filePath)
		if err != nil {
			log.Fatalf("Failed to open file: %v", err)
		}

		fmt.Printf("Uploading %s to %s...\n", *filePath, key)
		startTime := time.Now()
		err = client.Put(ctx, key, payload)
		duration := time.Since(startTime)
		if err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		fmt.Printf("Upload successful: %d bytes (took %v)\n", payload.Len(), duration)

	case "download":
		if *objectKey == "" || *filePath == "" {
			log.Fatal("Object key and file path are required for download")
		}

		file, err := os.Create(*filePath)
		if err != nil {
			log.Fatalf("Failed to create file: %v", err)
		}
		defer file.Close()

		fmt.Printf("Downloading %s to %s...\n", *objectKey, *filePath)
		startTime := time.Now()
		bytesWritten, err := client.Download(ctx, *objectKey, file)
		duration := time.Since(startTime)
		if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		fmt.Printf("Download successful: %d bytes (took %v)\n", bytesWritten, duration)

	case "delete":
		if *objectKey == "" {
			log.Fatal("Object key is required for delete")
		}

		fmt.Printf("Deleting %s...\n", *objectKey)
		if err := client.Delete(ctx, *objectKey); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		fmt.Println("Delete successful")

	case "stat":
		if *objectKey == "" {
			log.Fatal("Object key is required for stat")
		}

		info, err := client.Stat(ctx, *objectKey)
		if err != nil {
			log.Fatalf("Stat failed: %v", err)
		}
		fmt.Printf("Key:           %s\n", info.Key)
		fmt.Printf("Size:          %d\n", info.Size)
		fmt.Printf("Content-Type:  %s\n", info.ContentType)
		fmt.Printf("ETag:          %s\n", info.ETag)
		fmt.Printf("Last-Modified: %s\n", info.LastModified.Format(time.RFC3339))

	case "list":
		result, err := client.List(ctx, simples3.ListParams{Prefix: *prefix})
		if err != nil {
			log.Fatalf("List failed: %v", err)
		}
		for _, entry := range result.Entries {
			fmt.Printf("%12d  %s  %s\n", entry.Size, entry.LastModified.Format(time.RFC3339), entry.Key)
		}
		if result.IsTruncated {
			fmt.Printf("(truncated, next marker: %s)\n", result.NextMarker)
		}
		fmt.Printf("%d entries\n", len(result.Entries))

	case "presign":
		if *objectKey == "" {
			log.Fatal("Object key is required for presign")
		}

		url, err := client.PresignURL(strings.ToUpper(*method), *objectKey, time.Duration(*presignTTL)*time.Second)
		if err != nil {
			log.Fatalf("Failed to presign: %v", err)
		}
		fmt.Printf("Presigned %s URL for %s (valid for %d seconds):\n%s\n",
			strings.ToUpper(*method), *objectKey, *presignTTL, url)
		if strings.EqualFold(*method, "PUT") {
			fmt.Println("\nTo use this URL with curl:")
			fmt.Printf("curl -X PUT -T your-file.txt \"%s\"\n", url)
		}

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func printHelp() {
	fmt.Println("S3 Client Check Application")
	fmt.Println("\nCommands:")
	fmt.Println("  upload    Upload a file")
	fmt.Println("  download  Download an object to a file")
	fmt.Println("  delete    Delete an object")
	fmt.Println("  stat      Print object metadata")
	fmt.Println("  list      List bucket contents")
	fmt.Println("  presign   Generate a pre-signed URL")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  Upload a file to AWS S3:")
	fmt.Println("    s3check -bucket my-bucket -access-key AKIAXXXX -secret-key XXXX -command upload -key test/file.txt -file ./local-file.txt")
	fmt.Println("\n  Upload a file to MinIO:")
	fmt.Println("    s3check -use-minio -bucket my-bucket -command upload -key test/file.txt -file ./local-file.txt")
	fmt.Println("\n  Generate a pre-signed download URL:")
	fmt.Println("    s3check -bucket my-bucket -command presign -key test/file.txt")
}
